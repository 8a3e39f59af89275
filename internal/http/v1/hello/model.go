package hello

// Path is the route of the greeting operation.
const Path = "/test/hello"

// Message is the fixed greeting.
const Message = "hello world"

const contentTypeJSON = "application/json"

// MetadataFixedContentType marks operations whose responses are never negotiated.
const MetadataFixedContentType = "fixedContentType"

// Greeting is the success payload.
type Greeting struct {
	Message string `json:"message" doc:"Greeting message" example:"hello world"`
}

// Output carries pre-encoded JSON so huma writes the bytes as-is, whatever the
// client asked for in Accept.
type Output struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}
