package logg

// Shared zap field names so log output stays greppable across layers.
const (
	Layer     = "layer"
	Operation = "operation"
	TurnID    = "turn_id"
	Utterance = "utterance"
	Action    = "action"
	Selector  = "selector"
	Target    = "target"
	Direction = "direction"
	URL       = "url"
)
