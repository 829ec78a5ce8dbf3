package main

import "filedrop/cmd"

func main() {
	cmd.Execute()
}
