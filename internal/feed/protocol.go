package feed

// Simple JSON protocol for the configuration daemon over a Unix domain socket.
// One request -> one response, except "watch", which is acknowledged and then
// streams one Event per line until either side closes the connection.

type Request struct {
	Op     string `json:"op"` // "has" | "get" | "set" | "list" | "watch"
	Schema string `json:"schema"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
}

type Response struct {
	OK    bool     `json:"ok"`
	Found bool     `json:"found,omitempty"`
	Value string   `json:"value,omitempty"`
	Keys  []string `json:"keys,omitempty"`
	Error string   `json:"error,omitempty"`
}

type Event struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
