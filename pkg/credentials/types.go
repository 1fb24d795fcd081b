package credentials

// Credential is a secret found on a scanned host.
type Credential struct {
	Saddr      string `json:"saddr" validate:"required,ip"`
	Name       string `json:"name"`
	Sport      int    `json:"sport" validate:"min=0,max=65535"`
	URL        string `json:"url"`
	Confidence string `json:"confidence"`
	Value      string `json:"value"`
}

// ListOptions are the optional parameters of List. Skip and Limit default to
// 0 and 10.
type ListOptions struct {
	Skip  *int
	Limit *int
}
