package main

import "github.com/denisok6893-rgb/crm-lead-matching/internal/cli"

func main() {
	cli.Execute()
}
