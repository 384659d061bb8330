// Command riskmap rebuilds the rating history of urls and organizations
// from scan facts, and serves the stored snapshots.
package main

func main() {
	Execute()
}
