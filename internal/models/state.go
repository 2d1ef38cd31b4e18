package models

// RequestState is the single piece of state a screen renders. The concrete
// types below are the only implementations.
type RequestState interface {
	Status() string
	requestState()
}

type Idle struct{}

type Loading struct {
	Seq uint64
}

type Success struct {
	View WeatherView
}

type Failed struct {
	Message string
}

func (Idle) Status() string    { return "idle" }
func (Loading) Status() string { return "loading" }
func (Success) Status() string { return "success" }
func (Failed) Status() string  { return "failed" }

func (Idle) requestState()    {}
func (Loading) requestState() {}
func (Success) requestState() {}
func (Failed) requestState()  {}

// StateResponse is the JSON shape of a RequestState.
type StateResponse struct {
	Status  string       `json:"status"`
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
	Weather *WeatherView `json:"weather,omitempty"`
}

func NewStateResponse(s RequestState) StateResponse {
	resp := StateResponse{Status: s.Status()}
	switch st := s.(type) {
	case Loading:
		resp.Loading = true
	case Success:
		view := st.View
		resp.Weather = &view
	case Failed:
		resp.Error = st.Message
	case Idle:
	}
	return resp
}
