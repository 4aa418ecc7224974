// Command hotload resolves and hot-reloads WebAssembly modules.
package main

func main() {
	Execute()
}
