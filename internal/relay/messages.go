package relay

// Error messages returned to clients in the {"error": "..."} body.
const (
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgMissingAPIKey    = "API-avain (GEMINI_API_KEY) puuttuu palvelimen asetuksista."
	MsgConnectionFailed = "Palvelinvirhe: Yhteys tekoälyyn epäonnistui."
	MsgProviderError    = "Googlen palvelu palautti virheen."
	MsgInvalidBody      = "Virheellinen pyyntö: contents puuttuu tai JSON on virheellinen."
)

// ErrorResponse is the normalized error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
