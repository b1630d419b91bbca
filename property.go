package magen

// PropertyMetadata describes a single input property the workflow must
// collect from the user before it can proceed.
type PropertyMetadata struct {
	// Name is the stable key into State (matches the JSON property name).
	Name string `json:"propertyName"`
	// FriendlyName is the human-readable label used in prompts.
	FriendlyName string `json:"friendlyName"`
	// Description guides extraction and question generation.
	Description string `json:"description"`
}

// PropertyMetadataCollection is an insertion-ordered set of property
// metadata keyed by property name. Order matters for deterministic prompt
// rendering; fulfillment checks are order-independent set predicates.
type PropertyMetadataCollection struct {
	order []string
	props map[string]PropertyMetadata
}

// NewPropertyMetadataCollection builds a collection from the given metadata,
// preserving argument order. Adding a duplicate name replaces the earlier
// entry in place.
func NewPropertyMetadataCollection(props ...PropertyMetadata) *PropertyMetadataCollection {
	c := &PropertyMetadataCollection{props: make(map[string]PropertyMetadata)}
	for _, p := range props {
		c.Add(p)
	}
	return c
}

// Add inserts or replaces a property by name.
func (c *PropertyMetadataCollection) Add(p PropertyMetadata) {
	if _, exists := c.props[p.Name]; !exists {
		c.order = append(c.order, p.Name)
	}
	c.props[p.Name] = p
}

// Get returns the metadata for a property name.
func (c *PropertyMetadataCollection) Get(name string) (PropertyMetadata, bool) {
	p, ok := c.props[name]
	return p, ok
}

// Len returns the number of properties in the collection.
func (c *PropertyMetadataCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Names returns the property names in insertion order.
func (c *PropertyMetadataCollection) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// All returns the metadata entries in insertion order.
func (c *PropertyMetadataCollection) All() []PropertyMetadata {
	if c == nil {
		return nil
	}
	out := make([]PropertyMetadata, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.props[name])
	}
	return out
}

// Unfulfilled returns the subset of properties whose state fields are not yet
// fulfilled, in insertion order.
func (c *PropertyMetadataCollection) Unfulfilled(s State) []PropertyMetadata {
	var out []PropertyMetadata
	for _, p := range c.All() {
		if !s.IsFulfilled(p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// Fulfilled reports whether every property in the collection maps to a
// fulfilled state field. An empty collection is vacuously fulfilled. The
// result is independent of insertion order.
func (c *PropertyMetadataCollection) Fulfilled(s State) bool {
	if c == nil {
		return true
	}
	for _, name := range c.order {
		if !s.IsFulfilled(name) {
			return false
		}
	}
	return true
}

// AppGenerationProperties returns the property set required before a native
// app project can be generated.
func AppGenerationProperties() *PropertyMetadataCollection {
	return NewPropertyMetadataCollection(
		PropertyMetadata{
			Name:         "platform",
			FriendlyName: "Platform",
			Description:  "The target mobile platform, either iOS or Android.",
		},
		PropertyMetadata{
			Name:         "projectName",
			FriendlyName: "Project Name",
			Description:  "The name of the mobile app project to create.",
		},
		PropertyMetadata{
			Name:         "packageName",
			FriendlyName: "Package Name",
			Description:  "The app bundle identifier, e.g. com.example.myapp.",
		},
		PropertyMetadata{
			Name:         "organization",
			FriendlyName: "Organization",
			Description:  "The organization or company name for the project.",
		},
		PropertyMetadata{
			Name:         "connectedAppClientId",
			FriendlyName: "Connected App Client ID",
			Description:  "The OAuth client ID of the connected app used for login.",
		},
		PropertyMetadata{
			Name:         "connectedAppCallbackUri",
			FriendlyName: "Connected App Callback URI",
			Description:  "The OAuth callback URI registered on the connected app.",
		},
		PropertyMetadata{
			Name:         "loginHost",
			FriendlyName: "Login Host",
			Description:  "The login host for authentication, e.g. login.salesforce.com.",
		},
	)
}
