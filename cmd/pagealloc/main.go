// Command pagealloc exercises the page allocator from the command line.
package main

func main() {
	execute()
}
