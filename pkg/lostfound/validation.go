package lostfound

// RequiredFields lists the create-request fields in the order they are
// reported when missing.
var RequiredFields = []string{"name", "email", "phoneno", "title", "description"}

// Get returns a field by its wire name.
func (f ItemFields) Get(field string) string {
	switch field {
	case "name":
		return f.Name
	case "email":
		return f.Email
	case "phoneno":
		return f.PhoneNo
	case "title":
		return f.Title
	case "description":
		return f.Description
	}
	return ""
}

// Missing returns the required fields that are empty.
func (f ItemFields) Missing() []string {
	var missing []string
	for _, field := range RequiredFields {
		if f.Get(field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Validate returns a *ValidationError when any required field is empty.
func (f ItemFields) Validate() error {
	if missing := f.Missing(); len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
