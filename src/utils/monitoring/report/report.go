package report

type Report struct {
	Run       *RunReport       `json:"run,omitempty"`
	Indexer   *IndexerReport   `json:"indexer,omitempty"`
	Registrar *RegistrarReport `json:"registrar,omitempty"`
}
