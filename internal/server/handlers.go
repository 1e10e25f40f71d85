package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"notecloud/internal/cloud"
	"notecloud/internal/identifier"
	"notecloud/internal/store"
)

// BrowseNode is one entry in a browse listing.
type BrowseNode struct {
	Identifier   string `json:"identifier"`
	DisplayName  string `json:"display_name"`
	IsExpandable bool   `json:"is_expandable"`
}

// API translates browse and content requests into store operations.
type API struct {
	registry *Registry
}

// NewAPI creates the handler set over a Registry.
func NewAPI(registry *Registry) *API {
	return &API{registry: registry}
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// browseRoot lists the configured accounts as expandable roots.
func (a *API) browseRoot(c *gin.Context) {
	accounts := a.registry.All()
	nodes := make([]BrowseNode, 0, len(accounts))
	for _, acct := range accounts {
		nodes = append(nodes, BrowseNode{
			Identifier:   identifier.Root(acct.Scope).Encode(identifier.BrowseSep),
			DisplayName:  acct.Title,
			IsExpandable: true,
		})
	}
	c.JSON(http.StatusOK, nodes)
}

// browse lists the children of a folder or note-file identifier.
func (a *API) browse(c *gin.Context) {
	raw := strings.TrimPrefix(c.Param("identifier"), "/")
	if raw == "" {
		a.browseRoot(c)
		return
	}
	id, err := identifier.Decode(raw, identifier.BrowseSep)
	if err != nil {
		abortWithError(c, err)
		return
	}
	acct, ok := a.registry.Get(id.Scope)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown account scope: " + id.Scope})
		return
	}

	switch id.Type {
	case identifier.TypeFolder:
		a.browseFolder(c, acct, id)
	case identifier.TypeNoteFile:
		a.browseNoteFile(c, acct, id)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "identifier is not browsable"})
	}
}

func (a *API) browseFolder(c *gin.Context, acct *Account, id identifier.Identifier) {
	folderID, err := id.MediaID()
	if err != nil {
		abortWithError(c, err)
		return
	}
	contents, err := acct.Store.GetFolderContents(c.Request.Context(), folderID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	children := contents.Children()
	nodes := make([]BrowseNode, 0, len(children))
	for _, node := range children {
		switch n := node.(type) {
		case store.FolderInfo:
			path := append(append([]int64{}, id.Path...), n.FolderID)
			nodes = append(nodes, BrowseNode{
				Identifier:   identifier.Folder(id.Scope, path...).Encode(identifier.BrowseSep),
				DisplayName:  n.Name,
				IsExpandable: true,
			})
		case store.FileInfo:
			nodes = append(nodes, BrowseNode{
				Identifier:   identifier.NoteFile(id.Scope, contents.FolderID, n.FileID).Encode(identifier.BrowseSep),
				DisplayName:  n.Name,
				IsExpandable: strings.HasSuffix(n.Name, store.NoteSuffix),
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unhandled node kind"})
			return
		}
	}
	c.JSON(http.StatusOK, nodes)
}

func (a *API) browseNoteFile(c *gin.Context, acct *Account, id identifier.Identifier) {
	parentID, err := id.ParentFolderID()
	if err != nil {
		abortWithError(c, err)
		return
	}
	fileID, err := id.NoteFileID()
	if err != nil {
		abortWithError(c, err)
		return
	}
	file, err := a.findFile(c, acct, parentID, fileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	names, err := acct.Store.GetNotePageNames(c.Request.Context(), file)
	if err != nil {
		abortWithError(c, err)
		return
	}

	nodes := make([]BrowseNode, 0, len(names))
	for i, name := range names {
		nodes = append(nodes, BrowseNode{
			Identifier:   identifier.NotePage(id.Scope, parentID, fileID, i).Encode(identifier.BrowseSep),
			DisplayName:  name,
			IsExpandable: false,
		})
	}
	c.JSON(http.StatusOK, nodes)
}

// itemContent serves the rendered image named by a colon-form note page
// identifier.
func (a *API) itemContent(c *gin.Context) {
	id, err := identifier.Decode(c.Param("identifier"), identifier.ContentSep)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if id.Type != identifier.TypeNotePage {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "identifier does not name a note page"})
		return
	}
	acct, ok := a.registry.Get(id.Scope)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown account scope: " + id.Scope})
		return
	}
	parentID, err := id.ParentFolderID()
	if err != nil {
		abortWithError(c, err)
		return
	}
	fileID, err := id.NoteFileID()
	if err != nil {
		abortWithError(c, err)
		return
	}
	pageIndex, err := id.PageIndex()
	if err != nil {
		abortWithError(c, err)
		return
	}

	file, err := a.findFile(c, acct, parentID, fileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	data, err := acct.Store.GetNotePNG(c.Request.Context(), file, pageIndex)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// findFile resolves a file id within its parent's current contents.
func (a *API) findFile(c *gin.Context, acct *Account, parentID, fileID int64) (store.FileInfo, error) {
	contents, err := acct.Store.GetFolderContents(c.Request.Context(), parentID)
	if err != nil {
		return store.FileInfo{}, err
	}
	file, ok := contents.FileByID(fileID)
	if !ok {
		return store.FileInfo{}, store.ErrNotFound
	}
	return file, nil
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, identifier.ErrInvalid), errors.Is(err, store.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrPageOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, cloud.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, cloud.ErrAPI):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
