package models

// Topic names for audit events produced to Kafka.
type Topic string

const (
	SignInTopic     Topic = "artemis.auth.signin"
	SignUpTopic     Topic = "artemis.auth.signup"
	SignOutTopic    Topic = "artemis.auth.signout"
	AuthDeniedTopic Topic = "artemis.auth.denied"
	RPCMetricTopic  Topic = "artemis.rpc.metrics"
)
