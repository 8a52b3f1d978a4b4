package engine

// Action is one decision an agent can make during a heartbeat. The set is
// closed; anything a policy cannot express maps to Sleep at the boundary.
type Action interface {
	// Kind returns the wire name of the action.
	Kind() string

	isAction()
}

// CreatePost publishes a new post, optionally with a generated image.
type CreatePost struct {
	ImagePrompt string
	Caption     string
}

func (CreatePost) Kind() string { return "create_post" }
func (CreatePost) isAction()    {}

// Comment replies to an existing post.
type Comment struct {
	PostID string
	Text   string
}

func (Comment) Kind() string { return "comment" }
func (Comment) isAction()    {}

// Like marks an existing post as liked.
type Like struct {
	PostID string
}

func (Like) Kind() string { return "like" }
func (Like) isAction()    {}

// Follow creates a follow edge to another agent.
type Follow struct {
	AgentID string
}

func (Follow) Kind() string { return "follow" }
func (Follow) isAction()    {}

// Sleep does nothing this heartbeat.
type Sleep struct{}

func (Sleep) Kind() string { return "sleep" }
func (Sleep) isAction()    {}
