package request

type SubmitHarvestRequest struct {
	Query       string `json:"query"`
	ResultCount int    `json:"result_count"` // defaults to 10 when omitted
}

type PublishRequest struct {
	TargetKeyword string `json:"target_keyword"`
	PostTitle     string `json:"post_title"`
}
