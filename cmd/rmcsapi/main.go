package main

import "github.com/terraconstructs/rmcs/cmd/rmcsapi/cmd"

func main() {
	cmd.Execute()
}
