package taskname

const (
	// Wallet tasks
	WalletSyncPass = "wallet:sync_pass"
)
