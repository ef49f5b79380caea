package main

import "classroom/internal/cli"

//	@title			Classroom API
//	@version		1.0
//	@description	Accounts, sessions and classrooms. Web routes use the session cookie; /api/v1 uses bearer tokens.
//	@BasePath		/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	cli.Execute()
}
