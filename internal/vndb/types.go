package vndb

// Request and response shapes of the Kana API (POST /vn).

type queryRequest struct {
	Filters []any  `json:"filters"`
	Fields  string `json:"fields"`
	Results int    `json:"results"`
}

type queryResponse struct {
	Results []vnResult `json:"results"`
	More    bool       `json:"more"`
}

type vnResult struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Titles        []vnTitle   `json:"titles"`
	Image         *vnImage    `json:"image"`
	Rating        *float64    `json:"rating"`
	LengthMinutes *int        `json:"length_minutes"`
	Developers    []developer `json:"developers"`
	Tags          []vnTag     `json:"tags"`
}

type vnTitle struct {
	Lang     string `json:"lang"`
	Title    string `json:"title"`
	Main     bool   `json:"main"`
	Official bool   `json:"official"`
}

type vnImage struct {
	URL      string  `json:"url"`
	Sexual   float64 `json:"sexual"`
	Violence float64 `json:"violence"`
}

type developer struct {
	Name string `json:"name"`
}

type vnTag struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
	Category string  `json:"category"`
	Spoiler  float64 `json:"spoiler"`
}
