package cloud

// Request and response shapes for the cloud API. All requests are JSON
// POSTs; responses share a success/errorMsg envelope.

// IsFolderFlag is the value of FileEntry.IsFolder marking a folder entry.
const IsFolderFlag = "Y"

type envelope struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
}

func (e envelope) ok() bool             { return e.Success }
func (e envelope) errorMessage() string { return e.ErrorMsg }

type apiResponse interface {
	ok() bool
	errorMessage() string
}

type fileListRequest struct {
	DirectoryID int64  `json:"directoryId,string"`
	PageNo      int    `json:"pageNo"`
	PageSize    int    `json:"pageSize"`
	Order       string `json:"order"`
	Sequence    string `json:"sequence"`
}

// FileEntry is one file or folder in a listing response.
type FileEntry struct {
	ID          int64  `json:"id,string"`
	DirectoryID int64  `json:"directoryId,string"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	MD5         string `json:"md5"`
	IsFolder    string `json:"isFolder"`
	CreateTime  int64  `json:"createTime"`
	UpdateTime  int64  `json:"updateTime"`
}

// FileListResponse is the result of listing one folder.
type FileListResponse struct {
	envelope
	Total    int         `json:"total"`
	FileList []FileEntry `json:"userFileVOList"`
}

type fileDownloadURLRequest struct {
	ID   int64 `json:"id,string"`
	Type int   `json:"type"`
}

type fileDownloadURLResponse struct {
	envelope
	URL string `json:"url"`
}

type randomCodeRequest struct {
	CountryCode string `json:"countryCode"`
	Account     string `json:"account"`
}

type randomCodeResponse struct {
	envelope
	RandomCode string `json:"randomCode"`
	Timestamp  string `json:"timestamp"`
}

type loginRequest struct {
	CountryCode string `json:"countryCode"`
	Account     string `json:"account"`
	Password    string `json:"password"`
	Browser     string `json:"browser"`
	Equipment   int    `json:"equipment"`
	LoginMethod int    `json:"loginMethod"`
	Timestamp   string `json:"timestamp"`
	Language    string `json:"language"`
}

type loginResponse struct {
	envelope
	Token string `json:"token"`
}

type queryUserRequest struct {
	CountryCode string `json:"countryCode"`
	Account     string `json:"account"`
}

// QueryUserResponse describes the account behind an access token.
type QueryUserResponse struct {
	envelope
	UserName string `json:"userName"`
}
