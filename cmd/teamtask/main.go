package main

import "github.com/Stachugit-s/teamtaskmanager2/internal/cli"

func main() {
	cli.Execute()
}
