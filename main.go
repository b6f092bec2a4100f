package main

import "github.com/user/seccat-audit/cmd"

func main() {
	cmd.Execute()
}
