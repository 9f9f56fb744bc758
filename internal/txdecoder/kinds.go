package txdecoder

import "encoding/json"

// KnownKinds is the closed table-driven set of code_type names the decoder
// recognizes. Any other code_type (including one absent from the checksum
// registry) maps to "unknown" and carries no decoded payload.
var KnownKinds = map[string]bool{
	"tx_transfer":                   true,
	"tx_bond":                       true,
	"tx_unbond":                     true,
	"tx_withdraw":                   true,
	"tx_reveal_pk":                  true,
	"tx_vote_proposal":              true,
	"tx_init_account":               true,
	"tx_update_account":             true,
	"tx_init_validator":             true,
	"tx_become_validator":           true,
	"tx_resign_steward":             true,
	"tx_update_steward_commission":  true,
	"tx_ibc":                        true,
	"tx_bridge_pool":                true,
	"tx_claim_rewards":              true,
	"tx_redelegate":                 true,
	"tx_deactivate_validator":       true,
	"tx_reactivate_validator":       true,
	"tx_unjail_validator":           true,
	"tx_change_consensus_key":       true,
	"tx_change_validator_commission": true,
	"tx_change_validator_metadata":  true,
	"tx_init_proposal":              true,
}

// payload shapes for each known kind. Fields use the same names the read
// API (internal/readapi) projects out of the JSON data column.

type Transfer struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type Bond struct {
	Source    string `json:"source"`
	Validator string `json:"validator"`
	Amount    string `json:"amount"`
}

type Unbond struct {
	Source    string `json:"source"`
	Validator string `json:"validator"`
	Amount    string `json:"amount"`
}

type Withdraw struct {
	Source    string `json:"source"`
	Validator string `json:"validator"`
}

type RevealPK struct {
	PublicKey string `json:"public_key"`
}

type VoteProposal struct {
	ProposalID uint64   `json:"proposal_id"`
	Vote       string   `json:"vote"`
	Voter      string   `json:"voter"`
	Delegators []string `json:"delegators"`
}

type InitProposal struct {
	ID        uint64 `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	StartTime string `json:"start_epoch"`
	EndTime   string `json:"end_epoch"`
}

type InitAccount struct {
	PublicKeys []string `json:"public_keys"`
	Threshold  uint32   `json:"threshold"`
	VpCodeHash string   `json:"vp_code_hash"`
}

type UpdateAccount struct {
	Address    string   `json:"addr"`
	PublicKeys []string `json:"public_keys"`
	Threshold  *uint32  `json:"threshold,omitempty"`
	VpCodeHash *string  `json:"vp_code_hash,omitempty"`
}

type InitValidator struct {
	Address          string `json:"address"`
	ConsensusKey     string `json:"consensus_key"`
	CommissionRate   string `json:"commission_rate"`
	MaxCommissionRate string `json:"max_commission_rate_change"`
}

type ResignSteward struct {
	Steward string `json:"steward"`
}

type UpdateStewardCommission struct {
	Steward    string            `json:"steward"`
	Commission map[string]string `json:"commission"`
}

type IBC struct {
	Data json.RawMessage `json:"data"`
}

type BridgePool struct {
	Sender   string `json:"sender"`
	Recipient string `json:"recipient"`
	Asset    string `json:"asset"`
	Amount   string `json:"amount"`
}

type ClaimRewards struct {
	Source    string `json:"source"`
	Validator string `json:"validator"`
}

type Redelegate struct {
	Source      string `json:"source"`
	SrcValidator string `json:"src_validator"`
	DstValidator string `json:"dst_validator"`
	Amount      string `json:"amount"`
}

type ValidatorStateChange struct {
	Validator string `json:"validator"`
}

type ChangeConsensusKey struct {
	Validator    string `json:"validator"`
	ConsensusKey string `json:"consensus_key"`
}

type ChangeValidatorCommission struct {
	Validator string `json:"validator"`
	NewRate   string `json:"new_rate"`
}

type ChangeValidatorMetadata struct {
	Validator string `json:"validator"`
	Email     string `json:"email,omitempty"`
	Website   string `json:"website,omitempty"`
	Discord   string `json:"discord_handle,omitempty"`
}

// decodePayload validates that data unmarshals into the shape kind
// expects and returns it re-marshaled as canonical JSON. An empty data
// slice is treated as an empty JSON object so kinds with all-optional
// fields still decode.
func decodePayload(kind string, data []byte) (json.RawMessage, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}

	var target interface{}
	switch kind {
	case "tx_transfer":
		target = &Transfer{}
	case "tx_bond":
		target = &Bond{}
	case "tx_unbond":
		target = &Unbond{}
	case "tx_withdraw":
		target = &Withdraw{}
	case "tx_reveal_pk":
		target = &RevealPK{}
	case "tx_vote_proposal":
		target = &VoteProposal{}
	case "tx_init_proposal":
		target = &InitProposal{}
	case "tx_init_account":
		target = &InitAccount{}
	case "tx_update_account":
		target = &UpdateAccount{}
	case "tx_init_validator", "tx_become_validator":
		target = &InitValidator{}
	case "tx_resign_steward":
		target = &ResignSteward{}
	case "tx_update_steward_commission":
		target = &UpdateStewardCommission{}
	case "tx_ibc":
		target = &IBC{}
	case "tx_bridge_pool":
		target = &BridgePool{}
	case "tx_claim_rewards":
		target = &ClaimRewards{}
	case "tx_redelegate":
		target = &Redelegate{}
	case "tx_deactivate_validator", "tx_reactivate_validator", "tx_unjail_validator":
		target = &ValidatorStateChange{}
	case "tx_change_consensus_key":
		target = &ChangeConsensusKey{}
	case "tx_change_validator_commission":
		target = &ChangeValidatorCommission{}
	case "tx_change_validator_metadata":
		target = &ChangeValidatorMetadata{}
	default:
		return nil, errUnknownKind(kind)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return nil, err
	}
	out, err := json.Marshal(target)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type unknownKindError string

func (e unknownKindError) Error() string { return "txdecoder: unknown kind " + string(e) }

func errUnknownKind(kind string) error { return unknownKindError(kind) }
