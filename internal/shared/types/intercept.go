package types

// ResourceType classifies an outbound request the way the hosting
// webview reports it.
type ResourceType string

const (
	ResourceMainFrame  ResourceType = "mainFrame"
	ResourceSubFrame   ResourceType = "subFrame"
	ResourceScript     ResourceType = "script"
	ResourceImage      ResourceType = "image"
	ResourceStylesheet ResourceType = "stylesheet"
	ResourceXHR        ResourceType = "xhr"
	ResourceFetch      ResourceType = "fetch"
	ResourcePing       ResourceType = "ping"
	ResourceMedia      ResourceType = "media"
	ResourceFont       ResourceType = "font"
	ResourceObject     ResourceType = "object"
	ResourceWebSocket  ResourceType = "webSocket"
)

// InterceptRequest is the per-request metadata handed to the policy
// engine by the transport layer before the request is sent.
type InterceptRequest struct {
	URL          string              `json:"url"`
	ResourceType ResourceType        `json:"resourceType"`
	Initiator    string              `json:"initiator,omitempty"`
	Headers      map[string][]string `json:"requestHeaders,omitempty"`
}

// Verdict is the policy engine's answer for one request.
type Verdict string

const (
	VerdictPass     Verdict = "pass"
	VerdictCancel   Verdict = "cancel"
	VerdictRedirect Verdict = "redirect"
)

// Decision carries the verdict plus the redirect target when the
// verdict is VerdictRedirect.
type Decision struct {
	Verdict     Verdict `json:"verdict"`
	RedirectURL string  `json:"redirectUrl,omitempty"`
}
