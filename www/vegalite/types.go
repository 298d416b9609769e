package vegalite

type Chart struct {
	Schema   string   `json:"$schema"`
	Title    string   `json:"title,omitempty"`
	Width    any      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
	Data     Data     `json:"data"`
	Mark     Mark     `json:"mark"`
	Encoding Encoding `json:"encoding"`
}

type Data struct {
	Values []map[string]any `json:"values"`
}

type Mark struct {
	Type    string `json:"type"`
	Point   bool   `json:"point,omitempty"`
	Tooltip bool   `json:"tooltip,omitempty"`
}

type Encoding struct {
	X       *Field  `json:"x,omitempty"`
	Y       *Field  `json:"y,omitempty"`
	Color   *Field  `json:"color,omitempty"`
	Tooltip []Field `json:"tooltip,omitempty"`
}

type Field struct {
	Field    string `json:"field"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	TimeUnit string `json:"timeUnit,omitempty"`
	Axis     *Axis  `json:"axis,omitempty"`
}

type Axis struct {
	Format     string `json:"format,omitempty"`
	LabelAngle *int   `json:"labelAngle,omitempty"`
}
