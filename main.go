package main

import "github.com/querylens/querylens/cmd"

func main() {
	cmd.Execute()
}
