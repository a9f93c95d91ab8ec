package model

// Event type discriminators carried in every WebSocket payload.
const (
	EventRequestCreated = "swap_request_created"
	EventStatusChanged  = "swap_request_status_changed"
)

type RequestCreated struct {
	Type     string `json:"type"`
	ID       uint64 `json:"id"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	AmountIn uint64 `json:"amount_in"`
	TokenIn  string `json:"token_in"`
	TokenOut string `json:"token_out"`
}

func NewRequestCreated(req SwapRequest) RequestCreated {
	return RequestCreated{
		Type:     EventRequestCreated,
		ID:       req.ID,
		Sender:   req.Sender,
		Receiver: req.Receiver,
		AmountIn: req.AmountIn,
		TokenIn:  req.TokenIn,
		TokenOut: req.TokenOut,
	}
}

type StatusChanged struct {
	Type      string `json:"type"`
	ID        uint64 `json:"id"`
	Approved  bool   `json:"approved"`
	Cancelled bool   `json:"cancelled"`
}

func NewStatusChanged(id uint64, status Status) StatusChanged {
	return StatusChanged{
		Type:      EventStatusChanged,
		ID:        id,
		Approved:  status == StatusApproved,
		Cancelled: status == StatusCancelled,
	}
}
