package main

import "github.com/Jiang-Li/ACS-Internet/cmd"

func main() {
	cmd.Execute()
}
