package provider

// Mock is a canned-response client for tests.
type Mock struct {
	Reply   string
	Handler func(system, user string) string
}

// NewMock creates a mock client with a fixed reply.
func NewMock(reply string) *Mock {
	return &Mock{Reply: reply}
}

// NewMockHandler creates a mock client backed by a handler function.
func NewMockHandler(handler func(system, user string) string) *Mock {
	return &Mock{Handler: handler}
}

// Prompt returns the fixed reply or delegates to the handler.
func (m *Mock) Prompt(system, user string) (string, error) {
	if m.Handler != nil {
		return m.Handler(system, user), nil
	}
	return m.Reply, nil
}
