package utils

// ChainFamily groups chains that share an address format and decoder flavour.
type ChainFamily string

const (
	FamilyEVM    ChainFamily = "evm"
	FamilySolana ChainFamily = "solana"
)

// ChainInfo 链信息
type ChainInfo struct {
	Name            string      `json:"name"`              // canonical name used in every table
	Family          ChainFamily `json:"family"`            // evm | solana
	NativeChainID   uint64      `json:"native_chain_id"`   // EVM chain id (0 for non-EVM)
	DeBridgeChainID uint64      `json:"debridge_chain_id"` // DLN internal chain id
	WormholeChainID uint16      `json:"wormhole_chain_id"` // chain id used by Mayan Swift
	NativeSymbol    string      `json:"native_symbol"`
}

// ChainRegistry 链注册表
type ChainRegistry struct {
	byName     map[string]*ChainInfo
	byDeBridge map[uint64]*ChainInfo
	byWormhole map[uint16]*ChainInfo
	byNative   map[uint64]*ChainInfo
}

// GlobalChainRegistry 全局链注册表
var GlobalChainRegistry *ChainRegistry

func init() {
	GlobalChainRegistry = NewChainRegistry([]*ChainInfo{
		{Name: "ethereum", Family: FamilyEVM, NativeChainID: 1, DeBridgeChainID: 1, WormholeChainID: 2, NativeSymbol: "ETH"},
		{Name: "optimism", Family: FamilyEVM, NativeChainID: 10, DeBridgeChainID: 10, WormholeChainID: 24, NativeSymbol: "ETH"},
		{Name: "bnb", Family: FamilyEVM, NativeChainID: 56, DeBridgeChainID: 56, WormholeChainID: 4, NativeSymbol: "BNB"},
		{Name: "polygon", Family: FamilyEVM, NativeChainID: 137, DeBridgeChainID: 137, WormholeChainID: 5, NativeSymbol: "POL"},
		{Name: "base", Family: FamilyEVM, NativeChainID: 8453, DeBridgeChainID: 8453, WormholeChainID: 30, NativeSymbol: "ETH"},
		{Name: "arbitrum", Family: FamilyEVM, NativeChainID: 42161, DeBridgeChainID: 42161, WormholeChainID: 23, NativeSymbol: "ETH"},
		{Name: "avalanche", Family: FamilyEVM, NativeChainID: 43114, DeBridgeChainID: 43114, WormholeChainID: 6, NativeSymbol: "AVAX"},
		{Name: "linea", Family: FamilyEVM, NativeChainID: 59144, DeBridgeChainID: 59144, WormholeChainID: 38, NativeSymbol: "ETH"},
		{Name: "solana", Family: FamilySolana, DeBridgeChainID: 7565164, WormholeChainID: 1, NativeSymbol: "SOL"},
	})
}

// NewChainRegistry indexes chains by name and by every chain-id scheme.
func NewChainRegistry(chains []*ChainInfo) *ChainRegistry {
	r := &ChainRegistry{
		byName:     make(map[string]*ChainInfo),
		byDeBridge: make(map[uint64]*ChainInfo),
		byWormhole: make(map[uint16]*ChainInfo),
		byNative:   make(map[uint64]*ChainInfo),
	}
	for _, c := range chains {
		r.byName[c.Name] = c
		if c.DeBridgeChainID != 0 {
			r.byDeBridge[c.DeBridgeChainID] = c
		}
		if c.WormholeChainID != 0 {
			r.byWormhole[c.WormholeChainID] = c
		}
		if c.NativeChainID != 0 {
			r.byNative[c.NativeChainID] = c
		}
	}
	return r
}

// ByName returns the chain registered under its canonical name.
func (r *ChainRegistry) ByName(name string) (*ChainInfo, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// ByDeBridgeID returns the chain for a DLN chain id.
func (r *ChainRegistry) ByDeBridgeID(id uint64) (*ChainInfo, bool) {
	c, ok := r.byDeBridge[id]
	return c, ok
}

// ByWormholeID returns the chain for a Wormhole chain id.
func (r *ChainRegistry) ByWormholeID(id uint16) (*ChainInfo, bool) {
	c, ok := r.byWormhole[id]
	return c, ok
}

// ByNativeID returns the EVM chain for an EIP-155 chain id.
func (r *ChainRegistry) ByNativeID(id uint64) (*ChainInfo, bool) {
	c, ok := r.byNative[id]
	return c, ok
}

// FamilyOf returns the family of a canonical chain name ("" when unknown).
func FamilyOf(chain string) ChainFamily {
	if c, ok := GlobalChainRegistry.ByName(chain); ok {
		return c.Family
	}
	return ""
}

// IsSolana is FamilyOf(chain) == FamilySolana.
func IsSolana(chain string) bool {
	return FamilyOf(chain) == FamilySolana
}
