package wrapper

var standardImports = []string{
	"java.util.*",
	"java.io.*",
	"java.lang.*",
	"java.math.*",
}

const listNodeSource = `public static class ListNode {
    int val;
    ListNode next;
    ListNode() {}
    ListNode(int val) { this.val = val; }
    ListNode(int val, ListNode next) { this.val = val; this.next = next; }

    public static ListNode fromArray(int[] arr) {
        if (arr == null || arr.length == 0) return null;
        ListNode head = new ListNode(arr[0]);
        ListNode current = head;
        for (int i = 1; i < arr.length; i++) {
            current.next = new ListNode(arr[i]);
            current = current.next;
        }
        return head;
    }

    public static int[] toArray(ListNode head) {
        List<Integer> values = new ArrayList<>();
        for (ListNode current = head; current != null; current = current.next) {
            values.add(current.val);
        }
        int[] arr = new int[values.size()];
        for (int i = 0; i < arr.length; i++) {
            arr[i] = values.get(i);
        }
        return arr;
    }
}`

const treeNodeSource = `public static class TreeNode {
    int val;
    TreeNode left;
    TreeNode right;
    TreeNode() {}
    TreeNode(int val) { this.val = val; }
    TreeNode(int val, TreeNode left, TreeNode right) {
        this.val = val;
        this.left = left;
        this.right = right;
    }
}`

const graphNodeSource = `public static class Node {
    int val;
    List<Node> neighbors;
    Node() { this.neighbors = new ArrayList<>(); }
    Node(int _val) {
        val = _val;
        neighbors = new ArrayList<>();
    }
    Node(int _val, ArrayList<Node> _neighbors) {
        val = _val;
        neighbors = _neighbors;
    }
}`

// helperDeclarations returns the data structure types every wrapped program
// carries, so user code can reference them without declaring them.
func helperDeclarations() []Declaration {
	return []Declaration{
		{Name: "ListNode", Comment: "Singly linked list node", Source: listNodeSource},
		{Name: "TreeNode", Comment: "Binary tree node", Source: treeNodeSource},
		{Name: "Node", Comment: "Graph node", Source: graphNodeSource},
	}
}
