// Command lendctl is the operator CLI for the lending service: catalog seeding,
// user and session management, reports and the notification worker.
package main

func main() {
	Execute()
}
