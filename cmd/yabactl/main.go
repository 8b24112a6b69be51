// Package main provides yabactl, the operator CLI for a Yaba database.
//
// Usage:
//
//	yabactl --db ~/Yaba/yaba.db --email me@example.com --password secret import --csv ledger.csv
//	yabactl --db ~/Yaba/yaba.db --email me@example.com --password secret export > ledger.csv
package main

import "github.com/yabaapp/yaba-server/cmd/yabactl/commands"

func main() {
	commands.Execute()
}
