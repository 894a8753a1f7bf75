package metrickeys

const (
	Prefix = "everflow."

	// Workflows
	WorkflowInstanceCreated  = Prefix + "workflow.created"
	WorkflowInstanceFinished = Prefix + "workflow.finished"

	WorkflowTaskProcessed = Prefix + "workflow.task.processed"
	WorkflowTaskDelay     = Prefix + "workflow.task.time_in_queue"

	WorkflowInstanceCacheSize     = Prefix + "workflow.cache.size"
	WorkflowInstanceCacheEviction = Prefix + "workflow.cache.eviction"

	WorkflowHistorySize = Prefix + "workflow.history.size"

	// Activities
	ActivityTaskProcessed = Prefix + "activity.task.processed"
	ActivityTaskDelay     = Prefix + "activity.task.time_in_queue"
	ActivityRetries       = Prefix + "activity.retries"
)

// Tag names
const (
	// Backend being used
	Backend = "backend"

	// Reason for evicting an entry from the workflow instance cache
	EvictionReason = "reason"

	SubWorkflow    = "subworkflow"
	ContinuedAsNew = "continued_as_new"

	ActivityName = "activity"
	WorkflowName = "workflow"
	QueueName    = "queue"
)
