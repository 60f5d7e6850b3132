package domain

// Project es una tarjeta de "Top Projects".
type Project struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Client es una tarjeta de "Our Top Clients".
type Client struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Industry string `json:"industry,omitempty"`
}

type FAQ struct {
	ID       int64  `json:"id,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

// Catalog agrupa el contenido estático que se carga al montar la UI.
type Catalog struct {
	Projects           []Project `json:"projects"`
	Clients            []Client  `json:"clients"`
	FAQs               []FAQ     `json:"faqs"`
	ReadyMadeQuestions []string  `json:"ready_made_questions"`
}
