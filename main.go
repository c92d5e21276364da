package main

import "recipe-restful/cmd"

// @title Recipe API
// @version 1.0
// @description Recipe management API built with go-restful.

func main() {
	cmd.Execute()
}
