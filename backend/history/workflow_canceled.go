package history

type ExecutionCanceledAttributes struct {
}
