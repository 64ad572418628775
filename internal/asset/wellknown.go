package asset

// Well-known mints.
const (
	MintSOL  = "So11111111111111111111111111111111111111112"
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintBONK = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	MintJTO  = "jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL"
	MintJUP  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
	MintRNDR = "rndrizKT3MK1iimdxRdWabcF7Zg7AR5T3nFH9zSQpQE"
	MintWIF  = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"
	MintPYTH = "HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3"
	MintSHDW = "SHDWyBxihqiCj6YekG2GUr7wqKLeLAMK1gHZck9pL6y"
)

var (
	SOL  = MustNewToken(MintSOL, "SOL", 9)
	USDC = MustNewToken(MintUSDC, "USDC", 6)
	USDT = MustNewToken(MintUSDT, "USDT", 6)
	BONK = MustNewToken(MintBONK, "BONK", 5)
	JTO  = MustNewToken(MintJTO, "JTO", 9)
	JUP  = MustNewToken(MintJUP, "JUP", 6)
	RNDR = MustNewToken(MintRNDR, "RNDR", 8)
	WIF  = MustNewToken(MintWIF, "WIF", 6)
	PYTH = MustNewToken(MintPYTH, "PYTH", 6)
	SHDW = MustNewToken(MintSHDW, "SHDW", 9)
)

// DefaultRegistry returns a registry pre-populated with well-known tokens.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range []Token{SOL, USDC, USDT, BONK, JTO, JUP, RNDR, WIF, PYTH, SHDW} {
		r.Register(t)
	}
	return r
}
