package domain

// NavItem is one sidebar entry. Permission is empty for entries every
// authenticated user may see.
type NavItem struct {
	Name       string    `json:"name"                 yaml:"name"`
	Href       string    `json:"href,omitempty"       yaml:"href,omitempty"`
	Permission string    `json:"permission,omitempty" yaml:"permission,omitempty"`
	Children   []NavItem `json:"children,omitempty"   yaml:"children,omitempty"`
}
