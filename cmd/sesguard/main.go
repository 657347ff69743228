package main

import "github.com/mailops/ses-guardian/internal/cli"

func main() {
	cli.Execute()
}
