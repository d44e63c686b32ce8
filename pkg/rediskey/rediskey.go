package rediskey

import "fmt"

const (
	SequencePrefix = "seq"
	RewardPrefix   = "RWD"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildSequenceKey returns "seq:{prefix}:{day}"
func BuildSequenceKey(prefix, day string) string {
	return NamespaceKey(SequencePrefix, NamespaceKey(prefix, day))
}

// BuildRewardSequenceKey returns "seq:RWD:{day}"
func BuildRewardSequenceKey(day string) string {
	return BuildSequenceKey(RewardPrefix, day)
}
