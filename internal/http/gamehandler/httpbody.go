package gamehandler

type SessionsResponse struct {
	SessionsCount int `json:"sessionsCount"`
}
