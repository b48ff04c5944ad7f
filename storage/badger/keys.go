package badger

import "fmt"

// Key prefixes for each record family. Composite keys use a NUL separator
// because document paths may contain any printable character.
const (
	documentPrefix = "kbdoc"
	approvalPrefix = "apprv"
	jobPrefix      = "vecjob"

	// openApprovalPrefix maps a document path to the ID of its single
	// open approval ticket, enforcing ticket uniqueness per document.
	openApprovalPrefix = "apprvopen"

	// approvalDocPrefix indexes approval tickets by document path.
	approvalDocPrefix = "apprvdoc"

	// jobDocPrefix indexes vectorization jobs by document path.
	jobDocPrefix = "vecjobdoc"

	keySep = "\x00"
)

func makeDocumentKey(path string) []byte {
	return []byte(documentPrefix + keySep + path)
}

func makeApprovalKey(id string) []byte {
	return []byte(approvalPrefix + keySep + id)
}

func makeJobKey(id string) []byte {
	return []byte(jobPrefix + keySep + id)
}

func makeOpenApprovalKey(path string) []byte {
	return []byte(openApprovalPrefix + keySep + path)
}

func makeApprovalDocKey(path, id string) []byte {
	return []byte(fmt.Sprintf("%s%s%s%s%s", approvalDocPrefix, keySep, path, keySep, id))
}

func makeJobDocKey(path, id string) []byte {
	return []byte(fmt.Sprintf("%s%s%s%s%s", jobDocPrefix, keySep, path, keySep, id))
}

func documentPrefixKey() []byte {
	return []byte(documentPrefix + keySep)
}

func approvalPrefixKey() []byte {
	return []byte(approvalPrefix + keySep)
}

func approvalDocPrefixKey(path string) []byte {
	return []byte(approvalDocPrefix + keySep + path + keySep)
}

func jobDocPrefixKey(path string) []byte {
	return []byte(jobDocPrefix + keySep + path + keySep)
}
