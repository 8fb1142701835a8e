package request

type RegisterDataset struct {
	Owner string `json:"owner" binding:"required"`

	// Raw dataset content, base64 per default gin binding
	Data []byte `json:"data" binding:"required"`

	License       string   `json:"license"`
	IntegrityRoot string   `json:"integrity_root"`
	PolicyType    string   `json:"policy_type"`
	MinStake      int64    `json:"min_stake"`
	AllowedTokens []string `json:"allowed_tokens"`
}

type FileClaim struct {
	Author      string `json:"author" binding:"required"`
	Role        string `json:"role" binding:"required"`
	Severity    int16  `json:"severity"`
	Statement   string `json:"statement" binding:"required"`
	EvidenceUri string `json:"evidence_uri"`
}

type GrantAccess struct {
	Requester   string `json:"requester" binding:"required"`
	Purpose     string `json:"purpose"`
	Stake       int64  `json:"stake"`
	Price       int64  `json:"price"`
	HolderToken string `json:"holder_token"`
}

type SetStatus struct {
	// One of certify, dispute, restore
	Action string `json:"action" binding:"required"`
	Actor  string `json:"actor" binding:"required"`
	Note   string `json:"note"`
}
