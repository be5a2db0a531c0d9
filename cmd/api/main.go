package main

import "github.com/sefazor/events-backend/cmd/api/cmd"

func main() {
	cmd.Execute()
}
