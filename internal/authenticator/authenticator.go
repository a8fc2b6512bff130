package authenticator

import "net/http"

type Authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	IssueSession(response http.ResponseWriter, username string) error
	ClearSession(response http.ResponseWriter)
}
