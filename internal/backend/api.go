package backend

// authPayload is the credentials body for the token endpoint.
type authPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse models the token endpoint's response.
type authResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refreshPayload is the body for the token refresh endpoint.
type refreshPayload struct {
	Refresh string `json:"refresh"`
}

// refreshResponse models the refresh endpoint's response.
type refreshResponse struct {
	Access string `json:"access"`
}

// circuitPayload models the circuit resource returned by the backend.
type circuitPayload struct {
	ID                      int64                      `json:"id"`
	Name                    string                     `json:"name"`
	Active                  bool                       `json:"active"`
	Schedule                []scheduledItemPayload     `json:"schedule"`
	TodayOneTimeActivations []oneTimeActivationPayload `json:"today_one_time_activations"`
}

type scheduledItemPayload struct {
	Time   string `json:"time"` // "HH:MM"
	Amount int    `json:"amount"`
	Active bool   `json:"active"`
}

type oneTimeActivationPayload struct {
	Timestamp string `json:"timestamp"` // "2006-01-02T15:04:05"
	Amount    int    `json:"amount"`
}

// executionLogPayload is the body reported after a pump activation.
type executionLogPayload struct {
	Timestamp string `json:"timestamp"`
	Amount    int    `json:"amount"`
}
