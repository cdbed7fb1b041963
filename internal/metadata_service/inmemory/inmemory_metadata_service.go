package inmemory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/bits"
	"slices"
	"strings"
	"sync"
	"time"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
	"github.com/AnishMulay/sizefs/internal/size_spec"
	"github.com/google/uuid"
)

type Config struct {
	// DefaultMaxRandom seeds max_random on directories created by Mkdir.
	DefaultMaxRandom int
	Directories      []pms.DirectoryConfig
	SkipPresets      bool
}

func DefaultConfig() Config {
	return Config{DefaultMaxRandom: cs.DefaultMaxRandom}
}

type InMemoryMetadataService struct {
	// State
	mu      sync.RWMutex
	inodes  map[string]*pms.Inode
	nextIno uint64
	started bool

	cfg Config
	ls  log_service.LogService
}

func NewInMemoryMetadataService(ls log_service.LogService, cfg Config) *InMemoryMetadataService {
	if ls == nil {
		ls = log_service.Nop{}
	}
	return &InMemoryMetadataService{
		inodes:  make(map[string]*pms.Inode),
		nextIno: pms.RootIno,
		cfg:     cfg,
		ls:      ls,
	}
}

// --- Lifecycle ---

func (s *InMemoryMetadataService) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	now := time.Now()
	s.inodes[pms.RootInodeID] = &pms.Inode{
		InodeID:    pms.RootInodeID,
		Ino:        pms.RootIno,
		Type:       pms.TypeDirectory,
		Name:       "/",
		ParentID:   pms.RootInodeID,
		Mode:       pms.DirMode,
		AccessTime: now,
		ModifyTime: now,
		ChangeTime: now,
		Xattrs:     map[string]string{},
		Children:   map[string]string{},
	}
	s.started = true
	s.mu.Unlock()

	s.ls.Info(log_service.LogEvent{Message: "Bootstrapped Root Inode", Metadata: map[string]any{"id": pms.RootInodeID}})

	ctx := context.Background()
	if !s.cfg.SkipPresets {
		presets := cs.Presets()
		for _, name := range slices.Sorted(maps.Keys(presets)) {
			dir := pms.DirectoryConfig{Name: name, Attributes: presets[name].Attributes(), Files: cs.PresetFiles}
			if err := s.bootstrapDirectory(ctx, dir); err != nil {
				return fmt.Errorf("failed to create preset %s: %w", name, err)
			}
		}
	}
	for _, dir := range s.cfg.Directories {
		if err := s.bootstrapDirectory(ctx, dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir.Name, err)
		}
	}
	return nil
}

func (s *InMemoryMetadataService) bootstrapDirectory(ctx context.Context, dir pms.DirectoryConfig) error {
	attrs := s.defaultDirAttributes()
	for name, value := range dir.Attributes {
		name = cs.NormalizeAttributeName(name)
		if err := cs.ValidateAttribute(name, value); err != nil {
			return err
		}
		attrs[name] = value
	}
	if _, err := cs.PatternSetFromAttributes(attrs); err != nil {
		return fmt.Errorf("directory %q: %w", dir.Name, err)
	}

	inode, err := s.mkdir(ctx, pms.RootInodeID, dir.Name, attrs)
	if err != nil {
		return err
	}
	for _, file := range dir.Files {
		if _, err := s.Create(ctx, inode.InodeID, file); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryMetadataService) Stop() error {
	s.ls.Info(log_service.LogEvent{Message: "Stopping In-Memory Metadata Service"})
	return nil
}

func (s *InMemoryMetadataService) defaultDirAttributes() map[string]string {
	ps := cs.DefaultPatternSet()
	ps.MaxRandom = s.cfg.DefaultMaxRandom
	return ps.Attributes()
}

// --- Mutation Helper ---

func (s *InMemoryMetadataService) commit(op *pms.MetadataOperation) error {
	op.OpID = uuid.New().String()
	op.Timestamp = time.Now().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ls.Debug(log_service.LogEvent{
		Message:  "Applying Operation",
		Metadata: map[string]any{"type": op.Type.String(), "opID": op.OpID},
	})

	switch op.Type {
	case pms.OpCreate:
		return s.applyCreate(op)
	case pms.OpRemove:
		return s.applyRemove(op)
	case pms.OpRename:
		return s.applyRename(op)
	case pms.OpSetXattr:
		return s.applySetXattr(op)
	case pms.OpRemoveXattr:
		return s.applyRemoveXattr(op)
	default:
		return fmt.Errorf("unknown operation type: %v", op.Type)
	}
}

// --- Internal Appliers (Must be called with Lock held) ---

func (s *InMemoryMetadataService) dir(id string) (*pms.Inode, error) {
	inode, exists := s.inodes[id]
	if !exists {
		return nil, pms.ErrNotFound
	}
	if !inode.IsDir() {
		return nil, pms.ErrNotDir
	}
	return inode, nil
}

func (s *InMemoryMetadataService) applyCreate(op *pms.MetadataOperation) error {
	parent, err := s.dir(op.ParentID)
	if err != nil {
		return err
	}
	if _, exists := parent.Children[op.Name]; exists {
		return pms.ErrAlreadyExists
	}

	now := time.Unix(0, op.Timestamp)
	inode := &pms.Inode{
		InodeID:    op.InodeID,
		Type:       op.FileType,
		Name:       op.Name,
		ParentID:   parent.InodeID,
		AccessTime: now,
		ModifyTime: now,
		ChangeTime: now,
	}

	if op.FileType == pms.TypeDirectory {
		inode.Mode = pms.DirMode
		inode.Children = make(map[string]string)
		inode.Xattrs = maps.Clone(op.Xattrs)
		if inode.Xattrs == nil {
			inode.Xattrs = make(map[string]string)
		}
	} else {
		// the snapshot is taken under the same lock as attribute writes
		xattrs := maps.Clone(parent.Xattrs)
		patterns, err := cs.PatternSetFromAttributes(xattrs)
		if err != nil {
			return err
		}
		inode.Mode = pms.FileMode
		inode.Size = op.Size
		inode.Xattrs = xattrs
		inode.Descriptor = cs.NewFileDescriptor(op.Size, patterns)
	}

	s.nextIno++
	inode.Ino = s.nextIno
	s.inodes[op.InodeID] = inode

	parent.Children[op.Name] = op.InodeID
	parent.ModifyTime = now
	parent.ChangeTime = now
	return nil
}

func (s *InMemoryMetadataService) applyRemove(op *pms.MetadataOperation) error {
	parent, err := s.dir(op.ParentID)
	if err != nil {
		return err
	}
	childID, exists := parent.Children[op.Name]
	if !exists {
		return pms.ErrNotFound
	}
	child := s.inodes[childID]

	if op.FileType == pms.TypeDirectory {
		if !child.IsDir() {
			return pms.ErrNotDir
		}
		if len(child.Children) > 0 {
			return pms.ErrNotEmpty
		}
	} else if child.IsDir() {
		return pms.ErrIsDir
	}

	delete(s.inodes, childID)
	delete(parent.Children, op.Name)
	now := time.Unix(0, op.Timestamp)
	parent.ModifyTime = now
	parent.ChangeTime = now
	return nil
}

func (s *InMemoryMetadataService) applyRename(op *pms.MetadataOperation) error {
	srcParent, err := s.dir(op.ParentID)
	if err != nil {
		return err
	}
	dstParent, err := s.dir(op.DstParentID)
	if err != nil {
		return err
	}

	childID, ok := srcParent.Children[op.Name]
	if !ok {
		return pms.ErrNotFound
	}
	child := s.inodes[childID]
	if !child.IsDir() {
		return fmt.Errorf("%w: files cannot be renamed", pms.ErrPermission)
	}
	if dstParent.InodeID != pms.RootInodeID {
		return fmt.Errorf("%w: directories can only live at the root", pms.ErrPermission)
	}
	if srcParent == dstParent && op.Name == op.DstName {
		return nil
	}
	if _, exists := dstParent.Children[op.DstName]; exists {
		return pms.ErrAlreadyExists
	}

	delete(srcParent.Children, op.Name)
	dstParent.Children[op.DstName] = childID
	child.Name = op.DstName
	child.ParentID = dstParent.InodeID

	now := time.Unix(0, op.Timestamp)
	child.ChangeTime = now
	srcParent.ModifyTime = now
	srcParent.ChangeTime = now
	dstParent.ModifyTime = now
	dstParent.ChangeTime = now
	return nil
}

// updateXattrs swaps in a new attribute map so copies handed out earlier keep
// their contents. A file's descriptor is rebuilt from the new map.
func (s *InMemoryMetadataService) updateXattrs(inode *pms.Inode, xattrs map[string]string, ts int64) error {
	// directories are checked too, since max_random and the patterns are
	// set one attribute at a time
	patterns, err := cs.PatternSetFromAttributes(xattrs)
	if err != nil {
		return err
	}
	if !inode.IsDir() {
		inode.Descriptor = cs.NewFileDescriptor(inode.Size, patterns)
	}
	inode.Xattrs = xattrs
	inode.ChangeTime = time.Unix(0, ts)
	return nil
}

func (s *InMemoryMetadataService) applySetXattr(op *pms.MetadataOperation) error {
	inode, exists := s.inodes[op.InodeID]
	if !exists {
		return pms.ErrNotFound
	}
	xattrs := maps.Clone(inode.Xattrs)
	if xattrs == nil {
		xattrs = make(map[string]string)
	}
	xattrs[op.XattrName] = op.XattrValue
	return s.updateXattrs(inode, xattrs, op.Timestamp)
}

func (s *InMemoryMetadataService) applyRemoveXattr(op *pms.MetadataOperation) error {
	inode, exists := s.inodes[op.InodeID]
	if !exists {
		return pms.ErrNotFound
	}
	if _, ok := inode.Xattrs[op.XattrName]; !ok {
		return pms.ErrNoAttribute
	}
	xattrs := maps.Clone(inode.Xattrs)
	delete(xattrs, op.XattrName)
	return s.updateXattrs(inode, xattrs, op.Timestamp)
}

// --- Read Operations ---

func (s *InMemoryMetadataService) attributesOf(inode *pms.Inode) *pms.Attributes {
	nlink := uint32(1)
	if inode.IsDir() {
		nlink = 2
		for _, id := range inode.Children {
			if child, ok := s.inodes[id]; ok && child.IsDir() {
				nlink++
			}
		}
	}
	return &pms.Attributes{
		InodeID:    inode.InodeID,
		Ino:        inode.Ino,
		Type:       inode.Type,
		Mode:       inode.Mode,
		Size:       inode.Size,
		NLink:      nlink,
		AccessTime: inode.AccessTime,
		ModifyTime: inode.ModifyTime,
		ChangeTime: inode.ChangeTime,
	}
}

func (s *InMemoryMetadataService) GetAttributes(ctx context.Context, inodeID string) (*pms.Attributes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inode, exists := s.inodes[inodeID]
	if !exists {
		return nil, pms.ErrNotFound
	}
	return s.attributesOf(inode), nil
}

func (s *InMemoryMetadataService) GetInode(ctx context.Context, inodeID string) (*pms.Inode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inode, exists := s.inodes[inodeID]
	if !exists {
		return nil, pms.ErrNotFound
	}

	clone := *inode
	clone.Xattrs = maps.Clone(inode.Xattrs)
	clone.Children = maps.Clone(inode.Children)
	return &clone, nil
}

func (s *InMemoryMetadataService) Lookup(ctx context.Context, parentInodeID string, name string) (string, error) {
	s.mu.RLock()
	parent, err := s.dir(parentInodeID)
	if err != nil {
		s.mu.RUnlock()
		return "", err
	}
	childID, exists := parent.Children[name]
	s.mu.RUnlock()

	if exists {
		return childID, nil
	}
	if parentInodeID == pms.RootInodeID || !size_spec.Valid(name) {
		return "", pms.ErrNotFound
	}

	inode, err := s.Create(ctx, parentInodeID, name)
	if errors.Is(err, pms.ErrAlreadyExists) {
		return s.Lookup(ctx, parentInodeID, name)
	}
	if err != nil {
		return "", err
	}
	return inode.InodeID, nil
}

func (s *InMemoryMetadataService) LookupPath(ctx context.Context, path string) (string, error) {
	currentID := pms.RootInodeID

	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			s.mu.RLock()
			if inode, ok := s.inodes[currentID]; ok {
				currentID = inode.ParentID
			}
			s.mu.RUnlock()
			continue
		}

		nextID, err := s.Lookup(ctx, currentID, part)
		if err != nil {
			return "", err
		}
		currentID = nextID
	}

	return currentID, nil
}

func (s *InMemoryMetadataService) ReadDir(ctx context.Context, inodeID string) ([]pms.DirEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.dir(inodeID)
	if err != nil {
		return nil, err
	}

	entries := make([]pms.DirEntry, 0, len(dir.Children))
	for _, name := range slices.Sorted(maps.Keys(dir.Children)) {
		child := s.inodes[dir.Children[name]]
		entries = append(entries, pms.DirEntry{
			Name:    name,
			InodeID: child.InodeID,
			Ino:     child.Ino,
			Type:    child.Type,
		})
	}
	return entries, nil
}

func (s *InMemoryMetadataService) GetXattr(ctx context.Context, inodeID string, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inode, exists := s.inodes[inodeID]
	if !exists {
		return "", pms.ErrNotFound
	}
	value, ok := inode.Xattrs[cs.NormalizeAttributeName(name)]
	if !ok {
		return "", pms.ErrNoAttribute
	}
	return value, nil
}

func (s *InMemoryMetadataService) ListXattr(ctx context.Context, inodeID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inode, exists := s.inodes[inodeID]
	if !exists {
		return nil, pms.ErrNotFound
	}
	return slices.Sorted(maps.Keys(inode.Xattrs)), nil
}

func (s *InMemoryMetadataService) ResolvePatterns(ctx context.Context, path string) (cs.PatternSet, error) {
	id, err := s.LookupPath(ctx, path)
	if err != nil {
		return cs.PatternSet{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	inode, exists := s.inodes[id]
	if !exists {
		return cs.PatternSet{}, pms.ErrNotFound
	}
	if inode.Descriptor != nil {
		return inode.Descriptor.Patterns, nil
	}
	return cs.PatternSetFromAttributes(inode.Xattrs)
}

func (s *InMemoryMetadataService) GetFsStat(ctx context.Context) (*pms.FileSystemStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &pms.FileSystemStats{
		BlockSize:       pms.BlockSize,
		MaxFilenameSize: pms.MaxFilenameSize,
	}
	for _, inode := range s.inodes {
		if inode.IsDir() {
			stats.Directories++
			continue
		}
		stats.Files++
		sum, carry := bits.Add64(stats.TotalBytes, inode.Size, 0)
		if carry != 0 {
			sum = ^uint64(0)
		}
		stats.TotalBytes = sum
	}
	return stats, nil
}

// --- Write Operations ---

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return fmt.Errorf("%w: bad name %q", pms.ErrInvalid, name)
	}
	if len(name) > pms.MaxFilenameSize {
		return fmt.Errorf("%w: name longer than %d bytes", pms.ErrInvalid, pms.MaxFilenameSize)
	}
	return nil
}

func (s *InMemoryMetadataService) Create(ctx context.Context, parentInodeID string, name string) (*pms.Inode, error) {
	if parentInodeID == pms.RootInodeID {
		return nil, fmt.Errorf("%w: files can only be created inside a directory", pms.ErrPermission)
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	size, err := size_spec.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pms.ErrPermission, err)
	}

	newID := uuid.New().String()
	op := &pms.MetadataOperation{
		Type:     pms.OpCreate,
		InodeID:  newID,
		ParentID: parentInodeID,
		Name:     name,
		FileType: pms.TypeFile,
		Size:     size,
	}
	if err := s.commit(op); err != nil {
		return nil, err
	}

	s.ls.Info(log_service.LogEvent{
		Message:  "Created file",
		Metadata: map[string]any{"name": name, "size": size, "id": newID},
	})
	return s.GetInode(ctx, newID)
}

func (s *InMemoryMetadataService) Mkdir(ctx context.Context, parentInodeID string, name string) (*pms.Inode, error) {
	return s.mkdir(ctx, parentInodeID, name, s.defaultDirAttributes())
}

func (s *InMemoryMetadataService) mkdir(ctx context.Context, parentInodeID string, name string, xattrs map[string]string) (*pms.Inode, error) {
	if parentInodeID != pms.RootInodeID {
		return nil, fmt.Errorf("%w: directories can only be created at the root", pms.ErrPermission)
	}
	if err := validName(name); err != nil {
		return nil, err
	}

	newID := uuid.New().String()
	op := &pms.MetadataOperation{
		Type:     pms.OpCreate, // Reuse create op, different Type field
		InodeID:  newID,
		ParentID: parentInodeID,
		Name:     name,
		FileType: pms.TypeDirectory,
		Xattrs:   xattrs,
	}
	if err := s.commit(op); err != nil {
		return nil, err
	}

	s.ls.Info(log_service.LogEvent{
		Message:  "Created directory",
		Metadata: map[string]any{"name": name, "id": newID},
	})
	return s.GetInode(ctx, newID)
}

func (s *InMemoryMetadataService) Remove(ctx context.Context, parentInodeID string, name string) error {
	return s.commit(&pms.MetadataOperation{
		Type:     pms.OpRemove,
		ParentID: parentInodeID,
		Name:     name,
		FileType: pms.TypeFile,
	})
}

func (s *InMemoryMetadataService) Rmdir(ctx context.Context, parentInodeID string, name string) error {
	return s.commit(&pms.MetadataOperation{
		Type:     pms.OpRemove,
		ParentID: parentInodeID,
		Name:     name,
		FileType: pms.TypeDirectory,
	})
}

func (s *InMemoryMetadataService) Rename(ctx context.Context, srcParentID, srcName, dstParentID, dstName string) error {
	if err := validName(dstName); err != nil {
		return err
	}
	return s.commit(&pms.MetadataOperation{
		Type:        pms.OpRename,
		ParentID:    srcParentID,
		Name:        srcName,
		DstParentID: dstParentID,
		DstName:     dstName,
	})
}

func (s *InMemoryMetadataService) SetXattr(ctx context.Context, inodeID string, name, value string) error {
	if name == "" {
		return fmt.Errorf("%w: empty attribute name", pms.ErrInvalid)
	}
	name = cs.NormalizeAttributeName(name)
	if err := cs.ValidateAttribute(name, value); err != nil {
		return err
	}
	return s.commit(&pms.MetadataOperation{
		Type:       pms.OpSetXattr,
		InodeID:    inodeID,
		XattrName:  name,
		XattrValue: value,
	})
}

func (s *InMemoryMetadataService) RemoveXattr(ctx context.Context, inodeID string, name string) error {
	return s.commit(&pms.MetadataOperation{
		Type:      pms.OpRemoveXattr,
		InodeID:   inodeID,
		XattrName: cs.NormalizeAttributeName(name),
	})
}

var _ pms.MetadataService = (*InMemoryMetadataService)(nil)
