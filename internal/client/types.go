package client

// QueryResponse is the outcome of one query.
type QueryResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// AgentStatus reports the worker's state.
type AgentStatus struct {
	Running   bool `json:"running"`
	Connected bool `json:"connected"`
	Pid       int  `json:"pid,omitempty"`
}

// CacheStats is the result of a cache sweep.
type CacheStats struct {
	Message string `json:"message"`
	Entries int    `json:"entries"`
	Expired int    `json:"expired"`
}

// APIStatus reports which external services the worker is configured for.
type APIStatus struct {
	Intelligence  bool `json:"intelligence"`
	Memory        bool `json:"memory"`
	MarketData    bool `json:"market_data"`
	Websocket     bool `json:"websocket"`
	TokenSwapping bool `json:"token_swapping"`
}
