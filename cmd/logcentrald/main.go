// Command logcentrald runs the centralized log ingestion server.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
