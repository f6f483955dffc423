// internal/storage/file_storage_test.go
package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStorage(t *testing.T) *FileStorage {
	t.Helper()

	fs, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建文件存储失败: %v", err)
	}
	return fs
}

// TestSaveAndLoadJSON 测试JSON读写闭环
func TestSaveAndLoadJSON(t *testing.T) {
	fs := newTestStorage(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := fs.SaveJSONFile("book-1", "data.json", payload{Name: "测试", Count: 3}); err != nil {
		t.Fatalf("保存JSON失败: %v", err)
	}

	var loaded payload
	if err := fs.LoadJSONFile("book-1", "data.json", &loaded); err != nil {
		t.Fatalf("读取JSON失败: %v", err)
	}
	if loaded.Name != "测试" || loaded.Count != 3 {
		t.Errorf("读出的数据不一致: %+v", loaded)
	}
}

// TestSaveRawFileAtomic 测试写入后没有残留临时文件
func TestSaveRawFileAtomic(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.SaveRawFile("book-1", "raw.bin", []byte{1, 2, 3}); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}

	if _, err := os.Stat(filepath.Join(fs.BaseDir, "book-1", "raw.bin.tmp")); !os.IsNotExist(err) {
		t.Error("写入完成后不应该残留临时文件")
	}

	content, err := fs.LoadRawFile("book-1", "raw.bin")
	if err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}
	if len(content) != 3 || content[0] != 1 {
		t.Errorf("读出的内容不一致: %v", content)
	}
}

// TestSaveInvalidatesCache 测试写入后读到新内容
func TestSaveInvalidatesCache(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.SaveRawFile("book-1", "f.txt", []byte("old")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}
	if _, err := fs.LoadRawFile("book-1", "f.txt"); err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}

	// 第二次写入必须使上面的读缓存失效
	if err := fs.SaveRawFile("book-1", "f.txt", []byte("new")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}
	content, _ := fs.LoadRawFile("book-1", "f.txt")
	if string(content) != "new" {
		t.Errorf("应该读到新内容，实际: %s", content)
	}
}

// TestExistenceChecks 测试目录与文件存在性判断
func TestExistenceChecks(t *testing.T) {
	fs := newTestStorage(t)

	if fs.DirExists("book-1") {
		t.Error("未创建的目录不应该存在")
	}
	if fs.FileExists("book-1", "f.txt") {
		t.Error("未创建的文件不应该存在")
	}

	if err := fs.SaveRawFile("book-1", "f.txt", []byte("x")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}

	if !fs.DirExists("book-1") || !fs.FileExists("book-1", "f.txt") {
		t.Error("写入后目录与文件都应该存在")
	}
}

// TestDeleteFileAndDir 测试删除语义
func TestDeleteFileAndDir(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.DeleteFile("book-1", "missing.txt"); err == nil {
		t.Error("删除不存在的文件应该报错")
	}

	if err := fs.SaveRawFile("book-1", "f.txt", []byte("x")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}
	if err := fs.DeleteFile("book-1", "f.txt"); err != nil {
		t.Fatalf("删除文件失败: %v", err)
	}
	if fs.FileExists("book-1", "f.txt") {
		t.Error("删除后文件不应该存在")
	}

	if err := fs.SaveRawFile("book-2", "f.txt", []byte("x")); err != nil {
		t.Fatalf("保存文件失败: %v", err)
	}
	if err := fs.DeleteDir("book-2"); err != nil {
		t.Fatalf("删除目录失败: %v", err)
	}
	if fs.DirExists("book-2") {
		t.Error("删除后目录不应该存在")
	}
	if err := fs.DeleteDir("book-2"); err == nil {
		t.Error("重复删除目录应该报错")
	}
}

// TestListDirs 测试子目录列举只返回目录
func TestListDirs(t *testing.T) {
	fs := newTestStorage(t)

	fs.SaveRawFile("book-a", "f.txt", []byte("x"))
	fs.SaveRawFile("book-b", "f.txt", []byte("x"))
	fs.SaveRawFile("", "loose.txt", []byte("x"))

	dirs, err := fs.ListDirs("")
	if err != nil {
		t.Fatalf("列举目录失败: %v", err)
	}
	if len(dirs) != 2 {
		t.Errorf("应该只列出2个子目录，实际: %v", dirs)
	}
}
