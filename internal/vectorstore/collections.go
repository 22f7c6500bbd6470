package vectorstore

// Collection names.
const (
	Agents      = "agents"
	Chats       = "chats"
	Messages    = "messages"
	Capsules    = "capsules"
	Preferences = "preferences"
	Staking     = "staking"
	Earnings    = "earnings"
	MemPointers = "mem0_pointers"
)

// Named vectors.
const (
	Placeholder = "placeholder"
	MessageVec  = "content"
	CapsuleVec  = "description"

	placeholderDim = 1
)

// FieldKind is the declared type of a filterable payload key.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldBool   FieldKind = "boolean"
)

// Field is a payload key that filters may reference.
type Field struct {
	Key  string
	Kind FieldKind
}

// CollectionSpec describes one collection: its named vectors with their
// dimensionality and the payload keys that can be filtered on.
type CollectionSpec struct {
	Name    string
	Vectors map[string]int
	Fields  []Field
}

// HasPlaceholder reports whether records without real vectors get the 1-d placeholder.
func (s CollectionSpec) HasPlaceholder() bool {
	_, ok := s.Vectors[Placeholder]
	return ok
}

func (s CollectionSpec) field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func text(keys ...string) []Field {
	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Key: k, Kind: FieldText})
	}
	return out
}

func placeholderOnly() map[string]int {
	return map[string]int{Placeholder: placeholderDim}
}

// DefaultCollections returns the fixed set of collections the services use.
func DefaultCollections(messageDim, capsuleDim int) []CollectionSpec {
	capsuleFields := append(text("capsule_id", "creator_wallet", "owner_wallet", "agent_id", "category"),
		Field{Key: "stake_amount", Kind: FieldNumber},
		Field{Key: "price_per_query", Kind: FieldNumber},
		Field{Key: "reputation", Kind: FieldNumber},
		Field{Key: "query_count", Kind: FieldNumber},
		Field{Key: "rating", Kind: FieldNumber},
		Field{Key: "is_listed", Kind: FieldBool},
	)
	return []CollectionSpec{
		{Name: Agents, Vectors: placeholderOnly(), Fields: text("agent_id", "wallet")},
		{Name: Chats, Vectors: placeholderOnly(), Fields: text("chat_id", "agent_id", "wallet", "capsule_id")},
		{Name: Messages, Vectors: map[string]int{MessageVec: messageDim}, Fields: text("message_id", "chat_id", "agent_id", "wallet", "role")},
		{Name: Capsules, Vectors: map[string]int{CapsuleVec: capsuleDim}, Fields: capsuleFields},
		{Name: Preferences, Vectors: placeholderOnly(), Fields: text("wallet")},
		{Name: Staking, Vectors: placeholderOnly(), Fields: text("capsule_id", "staker_wallet")},
		{Name: Earnings, Vectors: placeholderOnly(), Fields: text("capsule_id", "wallet", "source")},
		{Name: MemPointers, Vectors: placeholderOnly(), Fields: text("mem0_memory_id", "agent_id", "chat_id", "capsule_id")},
	}
}
