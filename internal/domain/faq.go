package domain

// FAQEntry is a canonical question and its canonical answer.
type FAQEntry struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// KeywordRule resolves any input containing Trigger to the entry whose
// question is TargetQuestion.
type KeywordRule struct {
	Trigger        string `yaml:"trigger" json:"trigger"`
	TargetQuestion string `yaml:"question" json:"question"`
}

// Catalog is the static knowledge base a deployment answers from.
type Catalog struct {
	Name            string        `yaml:"name" json:"name"`
	About           string        `yaml:"about" json:"about"`
	FallbackMessage string        `yaml:"fallback_message" json:"fallbackMessage"`
	Entries         []FAQEntry    `yaml:"entries" json:"entries"`
	Keywords        []KeywordRule `yaml:"keywords" json:"keywords"`
}
